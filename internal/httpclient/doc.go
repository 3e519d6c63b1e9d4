// Package httpclient builds and sends the HTTP requests of a run.
//
// A [RequestBuilder] carries the configured headers and body; a [Sender]
// wraps a shared *http.Client and implements runner.SendFunc:
//
//	builder, err := httpclient.NewRequestBuilder(cfg)
//	if err != nil {
//		return err
//	}
//	sender := httpclient.NewSender(httpclient.NewClient(cfg.Timeout), builder,
//		httpclient.WithIdleConns(cfg.Concurrency))
//	status, err := sender.Send(ctx, http.MethodGet, cfg.TargetURL)
//
// A 5xx status is a response like any other. Send returns an error only
// when no response arrived.
package httpclient
