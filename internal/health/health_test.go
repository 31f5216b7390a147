package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func status(t *testing.T, c *Checker, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	res, err := c.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return res.GetStatus()
}

func TestCheckFollowsStorePing(t *testing.T) {
	var pingErr error
	c := NewChecker(func(context.Context) error { return pingErr })
	if got := status(t, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v", got)
	}

	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := status(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("after good ping = %v", got)
	}

	pingErr = errors.New("database is closed")
	if err := c.Check(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	if got := status(t, c, Service); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("after failed ping = %v", got)
	}
}

func TestNoStoreIsServing(t *testing.T) {
	c := NewChecker(nil)
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := status(t, c, Service); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", got)
	}
}

func TestHealthOverGRPC(t *testing.T) {
	c := NewChecker(nil)
	_ = c.Check(context.Background())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, c.Server())
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: Service})
	if err != nil {
		t.Fatalf("remote check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("remote status = %v", res.GetStatus())
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	calls := make(chan struct{}, 8)
	c := NewChecker(func(context.Context) error {
		calls <- struct{}{}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not check immediately")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
