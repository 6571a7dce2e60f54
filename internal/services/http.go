package services

import (
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
)

type ServiceHTTP struct{}

func (service *ServiceHTTP) httpClient(timeout time.Duration) *httpclient.Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return httpclient.NewClient(httpclient.WithHTTPTimeout(timeout))
}
