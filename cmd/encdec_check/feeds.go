package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/gomlx/encdec/backends"
	_ "github.com/gomlx/encdec/backends/host"
	"github.com/gomlx/encdec/subgraph"
	"github.com/gomlx/encdec/types/tensors"
)

// parseBatch parses "5,6,7,0;9,0,0,0" into a [batch, sequence] int32 tensor. All rows
// must have the same length (pad them with the pad token).
func parseBatch(arg string) (*tensors.Tensor, error) {
	rows := strings.Split(arg, ";")
	var flat []int32
	seqLen := -1
	for i, row := range rows {
		fields := strings.Split(row, ",")
		if seqLen == -1 {
			seqLen = len(fields)
		} else if len(fields) != seqLen {
			return nil, errors.Errorf("row %d has %d tokens, expected %d (pad shorter rows)", i, len(fields), seqLen)
		}
		for _, field := range fields {
			token, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", i)
			}
			flat = append(flat, int32(token))
		}
	}
	return tensors.FromFlatDataAndDimensions(flat, len(rows), seqLen), nil
}

func feedsCmd() *cli.Command {
	var (
		signaturePath string
		idsArg        string
		numBeams      int
		padToken      int
		startToken    int
	)
	return &cli.Command{
		Name:  "feeds",
		Usage: "Build the first-step feed list for a signature on the host backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to the signature JSON file",
				Destination: &signaturePath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "ids",
				Usage:       "input ids, rows separated by ';', tokens by ',' (e.g. \"5,6,7,0;9,0,0,0\")",
				Destination: &idsArg,
				Required:    true,
			},
			&cli.IntFlag{Name: "beams", Value: 4, Usage: "beams per input sequence", Destination: &numBeams},
			&cli.IntFlag{Name: "pad", Value: 0, Usage: "pad token id", Destination: &padToken},
			&cli.IntFlag{Name: "start", Value: 0, Usage: "decoder start token id", Destination: &startToken},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, sig, err := loadSignature(signaturePath)
			if err != nil {
				return err
			}
			sg := subgraph.New(name, sig)
			if _, err := sg.Validate(); err != nil {
				return err
			}
			sg.Setup(backends.New(), subgraph.HostHooks{})

			encoderInputIDs, err := parseBatch(idsArg)
			if err != nil {
				return err
			}
			feeds, sequenceLengths, _, err := sg.CreateInitialFeeds(encoderInputIDs, nil,
				subgraph.BeamExpansionRequest{
					NumBeams:     numBeams,
					PadTokenID:   int32(padToken),
					StartTokenID: int32(startToken),
				}, nil)
			if err != nil {
				return err
			}

			fmt.Printf("subgraph %q: %d feeds\n", name, len(feeds))
			for i, feed := range feeds {
				fmt.Printf("  feed %d: %s @ %s\n", i, feed.Shape(), feed.Location())
			}
			fmt.Printf("  sequence lengths: %v\n", sequenceLengths)
			return nil
		},
	}
}
