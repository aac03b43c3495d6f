package main

import (
	"context"
	"fmt"

	"github.com/Hoopakid/HRMobileProjectBackend/core/degree"
)

func (cli *commandLine) createDegree(name string) (degree.Degree, error) {
	ctx := context.Background()
	ed := degree.EditDegree{Name: name}
	if err := ed.Validate(ctx, cli.validate, cli.degreeSvc); err != nil {
		return degree.Degree{}, err
	}
	dgr, err := cli.degreeSvc.Create(ctx, ed)
	if err != nil {
		return degree.Degree{}, err
	}
	fmt.Fprintf(cli.out, "degree %d created\n", dgr.ID)
	return dgr, nil
}
