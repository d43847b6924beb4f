package mocks

import (
	"context"

	"github.com/quiby-ai/recordwire/pkg/transport"
	"github.com/stretchr/testify/mock"
)

// Client is a testify mock of transport.Client.
type Client struct {
	mock.Mock
}

func (m *Client) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(transport.Response), args.Error(1)
}

func (m *Client) Get(ctx context.Context, rawURL string, params, headers map[string]string) (transport.Response, error) {
	args := m.Called(ctx, rawURL, params, headers)
	return args.Get(0).(transport.Response), args.Error(1)
}

// NewClient registers a cleanup that asserts every expectation was met.
func NewClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *Client {
	m := &Client{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ transport.Client = (*Client)(nil)
