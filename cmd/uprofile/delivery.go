// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/Imfractical/uprofile/internal/config"
	"github.com/Imfractical/uprofile/internal/web"
)

// resetDelivery maps reset.delivery to the API's token sink. It returns nil
// for "none", which leaves POST /v1/password-resets disabled.
func resetDelivery(cfg *config.Config, logger *slog.Logger) web.ResetDelivery {
	if cfg.Reset.Delivery != config.ResetDeliveryLog {
		return nil
	}
	return func(ctx context.Context, identifier, token string) error {
		logger.WarnContext(ctx, "password reset token issued", "identifier", identifier, "token", token)
		return nil
	}
}
