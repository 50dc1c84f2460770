package main

import (
	"context"

	"github.com/pkg/errors"
)

func (cli *commandLine) seedBadges() error {
	ctx := context.Background()

	if err := cli.catalog.EnsureSeeded(ctx); err != nil {
		return errors.Wrap(err, "seeding badge catalog")
	}
	ladder, err := cli.catalog.ListActive(ctx)
	if err != nil {
		return errors.Wrap(err, "listing badge catalog")
	}
	return cli.printJSON(ladder)
}
