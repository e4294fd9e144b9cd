// Package proxy provides an embeddable HTTP proxy in front of the data.gov.gr
// query API.
//
// # Overview
//
// The proxy keeps the upstream token on the server side, authenticates its own
// clients with API keys and serves decoded, validated records as JSON.
//
// # Basic Usage
//
//	p, err := proxy.New(&proxy.Config{
//		Server: proxy.ServerConfig{Port: 8080},
//		Auth: proxy.AuthConfig{
//			APIKeys: []proxy.APIKey{{Name: "my-app", Key: "secret-key-here"}},
//		},
//		DataGov: proxy.DataGovConfig{
//			Token:   os.Getenv("DATAGOV_TOKEN"),
//			Timeout: 30 * time.Second,
//		},
//		Logging: proxy.LoggingConfig{Level: "info", Format: "json"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := p.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Using with Existing HTTP Server
//
//	http.Handle("/opendata/", http.StripPrefix("/opendata", p.Handler()))
//
// # Environment-based Configuration
//
//	p, err := proxy.NewFromEnv("configs/resources.yaml")
//
// # Direct Service Access
//
//	result, err := p.Service().Query(ctx, "road_traffic_attica", day, day)
package proxy
