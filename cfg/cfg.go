/*
Copyright 2023 - 2026 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cfg defines the server's configuration file format and defaults.
package cfg

import "time"

var (
	defaultEnableActivityDelivery = true
	defaultRequireHTTPSignatures  = true
)

// Config represents a broca configuration file.
type Config struct {
	DatabaseOptions string

	BaseURL             string
	PrimaryDomain       string
	ServerName          string
	RoutePrefix         string
	SystemActorUsername string

	EnableActivityDelivery *bool
	RequireHTTPSignatures  *bool

	EnableAdminOperations bool
	AdminAPIToken         string
	AuthorizedAdminActors []string

	PublicKeyCacheTTL          time.Duration
	DeliveryProcessingInterval time.Duration
	DeliveryBatchSize          int
	DeliveryConcurrency        int
	DeliveryMaxAttempts        int
	DeliveryRetention          time.Duration

	DeliveryTimeout   time.Duration
	DeliveryBackoff   []time.Duration
	DeliveryLeaseTime time.Duration

	MaxRequestBodySize int64
	MaxRequestAge      time.Duration

	ResolverCacheTTL    time.Duration
	ResolverIdleTimeout time.Duration
	MaxResolverRequests int

	CollectionPageSize int
}

// FillDefaults replaces missing or invalid settings with defaults.
func (c *Config) FillDefaults() {
	if c.DatabaseOptions == "" {
		c.DatabaseOptions = "_journal_mode=WAL&_synchronous=1&_busy_timeout=5000"
	}

	if c.SystemActorUsername == "" {
		c.SystemActorUsername = "sys"
	}

	if c.EnableActivityDelivery == nil {
		c.EnableActivityDelivery = &defaultEnableActivityDelivery
	}

	if c.RequireHTTPSignatures == nil {
		c.RequireHTTPSignatures = &defaultRequireHTTPSignatures
	}

	if c.PublicKeyCacheTTL <= 0 {
		c.PublicKeyCacheTTL = time.Hour
	}

	if c.DeliveryProcessingInterval <= 0 {
		c.DeliveryProcessingInterval = time.Second * 5
	}

	if c.DeliveryBatchSize <= 0 {
		c.DeliveryBatchSize = 100
	}

	if c.DeliveryConcurrency <= 0 {
		c.DeliveryConcurrency = 10
	}

	if c.DeliveryMaxAttempts <= 0 {
		c.DeliveryMaxAttempts = 5
	}

	if c.DeliveryRetention <= 0 {
		c.DeliveryRetention = time.Hour * 24 * 7
	}

	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = time.Second * 30
	}

	if len(c.DeliveryBackoff) == 0 {
		c.DeliveryBackoff = []time.Duration{
			time.Minute,
			time.Minute * 5,
			time.Minute * 15,
			time.Hour,
			time.Hour * 4,
		}
	}

	if c.DeliveryLeaseTime <= 0 {
		c.DeliveryLeaseTime = time.Minute * 10
	}

	if c.MaxRequestBodySize <= 0 {
		c.MaxRequestBodySize = 1024 * 1024
	}

	if c.MaxRequestAge <= 0 {
		c.MaxRequestAge = time.Minute * 5
	}

	if c.ResolverCacheTTL <= 0 {
		c.ResolverCacheTTL = time.Hour
	}

	if c.ResolverIdleTimeout <= 0 {
		c.ResolverIdleTimeout = time.Minute
	}

	if c.MaxResolverRequests <= 0 {
		c.MaxResolverRequests = 16
	}

	if c.CollectionPageSize <= 0 {
		c.CollectionPageSize = 30
	}
}
