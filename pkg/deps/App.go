package deps

import (
	"github.com/Alwanly/service-edge-controller/pkg/geoip"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
	"github.com/Alwanly/service-edge-controller/pkg/metrics"
	"github.com/Alwanly/service-edge-controller/pkg/middleware"
	"github.com/Alwanly/service-edge-controller/pkg/poll"
	"github.com/Alwanly/service-edge-controller/pkg/pubsub"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type App struct {
	Fiber      *fiber.App
	Logger     *logger.CanonicalLogger
	Database   *gorm.DB
	Middleware *middleware.AuthMiddleware
	Poller     poll.Poller
	Pub        pubsub.PubSub
	GeoIP      geoip.Resolver
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
}
