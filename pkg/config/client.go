package config

import (
	"github.com/project-copacetic/nessus/pkg/client"
	"github.com/project-copacetic/nessus/pkg/utils"
)

// NewClient returns an API client for the configured scanner.
func (c *Config) NewClient() (*client.Client, error) {
	if err := c.ValidateRemote(); err != nil {
		return nil, err
	}
	hc, err := utils.NewHTTPClient(c.CAFile, c.Insecure, c.Timeout)
	if err != nil {
		return nil, err
	}
	return client.New(c.Host, c.Token, c.Secret, client.WithHTTPClient(hc))
}
