package main

import (
	"context"
	"fmt"

	"github.com/xmflabs/xmf/internal/store"
)

type clearDBCmd struct{}

func (c *clearDBCmd) Run(g *globals) error {
	s, err := store.Open(resolveDBPath(g.DataDir, g.DBInMem))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Println("store cleared")
	return nil
}
