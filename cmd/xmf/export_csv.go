package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
	"github.com/xmflabs/xmf/internal/export"
	"github.com/xmflabs/xmf/internal/remote"
	"github.com/xmflabs/xmf/internal/store"
)

type exportCSVCmd struct {
	Output    string  `help:"Output file path (relative paths resolve under --data-dir)."`
	Format    string  `enum:"csv,json" default:"csv" help:"Output format."`
	Merchant  string  `help:"Substring filter on merchant name."`
	MinAmount float64 `help:"Minimum spend magnitude, as a positive number."`
	MaxAmount float64 `help:"Maximum spend magnitude, as a positive number."`
	TimeStart string  `help:"Inclusive start date, YYYY-MM-DD."`
	TimeEnd   string  `help:"Exclusive end date, YYYY-MM-DD."`
}

func (c *exportCSVCmd) Run(g *globals) error {
	s, err := store.Open(resolveDBPath(g.DataDir, g.DBInMem))
	if err != nil {
		return err
	}
	defer s.Close()

	filter, err := c.filterSpec()
	if err != nil {
		return err
	}

	rows, err := s.Query(context.Background(), filter)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = dataFilePath(g.DataDir, "transactions_export."+c.Format)
	} else if !filepath.IsAbs(output) {
		output = filepath.Join(g.DataDir, output)
	}

	n, err := export.Write(output, export.Format(c.Format), rows)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", n, output)
	return nil
}

func (c *exportCSVCmd) filterSpec() (domain.FilterSpec, error) {
	var filter domain.FilterSpec
	filter.Merchant = c.Merchant

	if c.MinAmount != 0 {
		filter.AmountMin = &c.MinAmount
	}
	if c.MaxAmount != 0 {
		filter.AmountMax = &c.MaxAmount
	}
	if c.TimeStart != "" {
		t, err := time.ParseInLocation("2006-01-02", c.TimeStart, remote.CampusLocation)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "--time-start must be YYYY-MM-DD"}
		}
		filter.TimeStart = &t
	}
	if c.TimeEnd != "" {
		t, err := time.ParseInLocation("2006-01-02", c.TimeEnd, remote.CampusLocation)
		if err != nil {
			return filter, &domain.ValidationError{Reason: "--time-end must be YYYY-MM-DD"}
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}
