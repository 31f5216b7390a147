// Package health reports catalog readiness over the standard gRPC health
// protocol and to the HTTP /ready probe.
package health

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the gRPC health service name reported next to the overall
// ("") status.
const Service = "cinefetch.Movies"

const pingTimeout = 2 * time.Second

// Checker pings the catalog store and mirrors the outcome into a gRPC health
// server. A nil ping means there is no store to wait for.
type Checker struct {
	ping func(context.Context) error
	srv  *health.Server
}

func NewChecker(ping func(context.Context) error) *Checker {
	c := &Checker{ping: ping, srv: health.NewServer()}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Server is the health service to register on a grpc.Server.
func (c *Checker) Server() *health.Server { return c.srv }

// Check pings the store once and updates the serving status.
func (c *Checker) Check(ctx context.Context) error {
	if c.ping == nil {
		c.set(healthpb.HealthCheckResponse_SERVING)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		c.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	c.set(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch re-checks every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := c.Check(ctx); err != nil {
			log.Printf("[health] store ping failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Shutdown marks every service NOT_SERVING for the drain period.
func (c *Checker) Shutdown() { c.srv.Shutdown() }

func (c *Checker) set(status healthpb.HealthCheckResponse_ServingStatus) {
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(Service, status)
}
