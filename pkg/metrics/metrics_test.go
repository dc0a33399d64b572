package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	ResourceOperations.WithLabelValues("criteria", "create", "ok").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["prospectbingo_resource_operations_total"])

	// registering twice on the same registry must panic
	require.Panics(t, func() { RegisterCollectors(reg) })
}
