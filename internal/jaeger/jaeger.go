package jaeger

import (
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

const defaultEndpoint = "http://jaeger:14268/api/traces"

// MustNewJaeger creates an exporter that sends spans to the Jaeger collector
// at jaeger.endpoint.
func MustNewJaeger() *jaeger.Exporter {
	endpoint := viper.GetString("jaeger.endpoint")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(endpoint),
	))
	if err != nil {
		panic(err)
	}

	return exp
}
