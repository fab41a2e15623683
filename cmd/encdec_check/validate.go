package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/gomlx/encdec/subgraph"
	"github.com/gomlx/encdec/types/shapes"
)

// dimJSON is one dimension of a declared shape: either a number (<= 0 means symbolic)
// or a symbolic name like "batch", which maps to a symbolic axis.
type dimJSON int

func (d *dimJSON) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*d = dimJSON(shapes.DynamicDim)
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*d = dimJSON(value)
	return nil
}

// valueInfoJSON is the on-disk form of one declared input or output.
type valueInfoJSON struct {
	Name  string    `json:"name"`
	DType string    `json:"dtype"`
	Dims  []dimJSON `json:"dims"`
}

// signatureJSON is the on-disk form of a subgraph signature.
type signatureJSON struct {
	Name    string          `json:"name"`
	Inputs  []valueInfoJSON `json:"inputs"`
	Outputs []valueInfoJSON `json:"outputs"`
}

// loadSignature reads a signature JSON file and converts it to a subgraph.Signature.
func loadSignature(path string) (name string, sig subgraph.Signature, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "reading signature file %q", path)
		return
	}
	var parsed signatureJSON
	if err = json.Unmarshal(data, &parsed); err != nil {
		err = errors.Wrapf(err, "parsing signature file %q", path)
		return
	}

	convert := func(values []valueInfoJSON, kind string) ([]subgraph.ValueInfo, error) {
		infos := make([]subgraph.ValueInfo, 0, len(values))
		for position, value := range values {
			dtype, err := dtypes.DTypeString(value.DType)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %d (%s)", kind, position, value.Name)
			}
			dims := make([]int, len(value.Dims))
			for i, dim := range value.Dims {
				dims[i] = int(dim)
			}
			infos = append(infos, subgraph.ValueInfo{
				Name:  value.Name,
				DType: dtype,
				Shape: shapes.MakeDynamic(dtype, dims...),
			})
		}
		return infos, nil
	}
	inputs, err := convert(parsed.Inputs, "input")
	if err != nil {
		return
	}
	outputs, err := convert(parsed.Outputs, "output")
	if err != nil {
		return
	}
	name = parsed.Name
	if name == "" {
		name = path
	}
	sig = subgraph.MakeSignature(inputs, outputs)
	return
}

func validateCmd() *cli.Command {
	var (
		signaturePath string
		asJSON        bool
	)
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a subgraph signature and print the derived model parameters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to the signature JSON file",
				Destination: &signaturePath,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "print model parameters as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, sig, err := loadSignature(signaturePath)
			if err != nil {
				return err
			}
			params, err := subgraph.New(name, sig).Validate()
			if err != nil {
				return err
			}
			if asJSON {
				fmt.Println(string(must.M1(json.MarshalIndent(params, "", "  "))))
				return nil
			}
			fmt.Printf("subgraph %q: OK\n", name)
			fmt.Printf("  layers:        %d\n", params.NumLayers)
			fmt.Printf("  heads:         %d\n", params.NumHeads)
			fmt.Printf("  head_size:     %d\n", params.HeadSize)
			fmt.Printf("  hidden:        %d\n", params.HiddenSize)
			fmt.Printf("  low_precision: %v\n", params.OutputLowPrecision)
			return nil
		},
	}
}
