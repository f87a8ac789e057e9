package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
)

// #region client-struct
// Client wraps the gRPC connection to a metrics server.
type Client struct {
	conn *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// NewClient connects to a metrics server. Extra options are appended after
// insecure transport credentials.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion constructor

// #region compute
// Compute sends the witnesses to the server and decodes the report.
func (c *Client) Compute(ctx context.Context, req Request) (metrics.Report, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("compute: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ComputeMethod, in, out); err != nil {
		return metrics.Report{}, fmt.Errorf("compute rpc: %w", err)
	}
	report, err := DecodeReport(out)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("compute: %w", err)
	}
	return report, nil
}

// #endregion compute
