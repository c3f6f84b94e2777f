// Lambda entrypoint for deployments that run the intake pipeline behind
// API Gateway instead of a long-lived server.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/park63/lead-intake/internal/app/bootstrap"
	appconfig "github.com/park63/lead-intake/internal/config"
	"github.com/park63/lead-intake/internal/leads"
	"github.com/park63/lead-intake/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	pool := bootstrap.BuildPgxPool(ctx, cfg, logger)
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	var opts []leads.ServiceOption
	if dispatcher := bootstrap.BuildDispatcher(cfg, nil, logger); dispatcher != nil {
		opts = append(opts, leads.WithNotifier(dispatcher))
	}

	service := leads.NewService(
		bootstrap.BuildRepository(pool, logger),
		bootstrap.BuildLimiter(redisClient, pool, cfg, logger),
		bootstrap.BuildVerifier(cfg, logger),
		logger,
		opts...,
	)

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, service, evt)
	})
}

func handle(ctx context.Context, service *leads.Service, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}

	if method != http.MethodPost {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}
	if path != "/api/submit-lead" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, leads.SubmitResponse{Error: "invalid request body"}), nil
	}

	var req leads.SubmitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return jsonResponse(http.StatusBadRequest, leads.SubmitResponse{Error: "invalid request body"}), nil
	}
	req.ClientIP = strings.TrimSpace(evt.RequestContext.HTTP.SourceIP)

	outcome := service.Submit(ctx, req)
	status, resp := leads.OutcomeResponse(outcome)
	return jsonResponse(status, resp), nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func jsonResponse(status int, resp leads.SubmitResponse) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(resp)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers: map[string]string{
			"content-type":                "application/json",
			"access-control-allow-origin": "*",
		},
	}
}
