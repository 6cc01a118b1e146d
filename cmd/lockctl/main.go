package main

import (
	"github.com/marrowvale/lockarbiter/internal/cli"
	_ "github.com/marrowvale/lockarbiter/pkg/hostsim/local"
	_ "github.com/marrowvale/lockarbiter/pkg/hostsim/nomad"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/bc"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/pg"
	_ "github.com/marrowvale/lockarbiter/pkg/lockstore/backend/s3"
)

func main() {
	cli.Execute()
}
