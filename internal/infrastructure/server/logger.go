package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/infrastructure/config"
)

// Logger logs every unary call once it completes.
func Logger(logger logrus.FieldLogger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := connect.CodeOf(err)
			entry := logger.WithFields(requestFields(req, code, time.Since(start)))
			if err != nil {
				entry = entry.WithError(err)
			}
			switch determineLogLevel(code, err) {
			case logrus.InfoLevel:
				entry.Info("request completed")
			case logrus.WarnLevel:
				entry.Warn("request completed")
			default:
				entry.Error("request completed")
			}
			return resp, err
		}
	}
}

func determineLogLevel(code connect.Code, err error) logrus.Level {
	if err == nil {
		return logrus.InfoLevel
	}
	switch code {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeNotFound,
		connect.CodeAlreadyExists, connect.CodeAborted, connect.CodeCanceled,
		connect.CodePermissionDenied, connect.CodeUnauthenticated:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

func requestFields(req connect.AnyRequest, code connect.Code, duration time.Duration) logrus.Fields {
	status := "ok"
	if code != 0 {
		status = code.String()
	}
	fields := logrus.Fields{
		"procedure":   req.Spec().Procedure,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}
	peer := req.Peer()
	addField(fields, "peer_addr", peer.Addr)
	addField(fields, "protocol", peer.Protocol)
	header := req.Header()
	addField(fields, "user_agent", header.Get("User-Agent"))
	addField(fields, "request_id", header.Get("X-Request-Id"))
	addField(fields, "client_ip", firstForwardedFor(header))
	return fields
}

func addField(fields logrus.Fields, key, value string) {
	if value != "" {
		fields[key] = value
	}
}

func firstForwardedFor(header http.Header) string {
	forwarded := header.Get("X-Forwarded-For")
	if forwarded == "" {
		return ""
	}
	for _, part := range strings.Split(forwarded, ",") {
		if candidate := strings.TrimSpace(part); candidate != "" {
			return candidate
		}
	}
	return ""
}

// NewLogger builds a configured logrus logger from application config.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
