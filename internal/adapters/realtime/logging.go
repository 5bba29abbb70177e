package realtime

import "log/slog"

const serviceName = "content-management-api"

func realtimeLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "realtime",
		"layer", "adapter",
	)
}
