package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportPoolSize_ScalesWithWorkers(t *testing.T) {
	assert.Equal(t, perWorkerConnections, TransportPoolSize(1))
	assert.Equal(t, 40, TransportPoolSize(4))
	assert.Equal(t, 1000, TransportPoolSize(100))
}

func TestTransportPoolSize_FloorsAtBaseline(t *testing.T) {
	assert.Equal(t, defaultTransportBaseline, TransportPoolSize(0))
	assert.Equal(t, defaultTransportBaseline, TransportPoolSize(-5))
}
