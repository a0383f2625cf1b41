package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote adfgvx.v1.Cipher service.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// EncipherReply mirrors the Encipher reply struct.
type EncipherReply struct {
	Ciphertext string
	Dropped    int
	Truncated  bool
}

// DecipherReply mirrors the Decipher reply struct. Error is only set for
// partial replies requested with allowPartial.
type DecipherReply struct {
	Plaintext string
	Partial   bool
	Truncated bool
	Error     string
}

// Dial creates a client for addr. Without extra options the connection is
// plaintext; pass transport credentials to override.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, token: token}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Encipher(ctx context.Context, key, plaintext string) (EncipherReply, error) {
	out, err := c.invoke(ctx, encipherMethod, map[string]any{"key": key, "text": plaintext})
	if err != nil {
		return EncipherReply{}, err
	}
	fields := out.GetFields()
	return EncipherReply{
		Ciphertext: fields["text"].GetStringValue(),
		Dropped:    int(fields["dropped"].GetNumberValue()),
		Truncated:  fields["truncated"].GetBoolValue(),
	}, nil
}

func (c *Client) Decipher(ctx context.Context, key, ciphertext string, allowPartial bool) (DecipherReply, error) {
	out, err := c.invoke(ctx, decipherMethod, map[string]any{
		"key":           key,
		"text":          ciphertext,
		"allow_partial": allowPartial,
	})
	if err != nil {
		return DecipherReply{}, err
	}
	fields := out.GetFields()
	return DecipherReply{
		Plaintext: fields["text"].GetStringValue(),
		Partial:   fields["partial"].GetBoolValue(),
		Truncated: fields["truncated"].GetBoolValue(),
		Error:     fields["error"].GetStringValue(),
	}, nil
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
