package otelx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false, ServiceName: "salon-api"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
