// Package calculator implements the arithmetic MCP backend: pure, stateless
// operations exposed as tools, plus an informational resource.
package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/docentchat/docent/pkg/tools/capability"
	"github.com/docentchat/docent/pkg/tools/mcpserver"
	"github.com/docentchat/docent/pkg/tools/toolbox"
)

const infoURI = "calculator://info"

// NewServer builds the calculator MCP server.
func NewServer() *mcpserver.Server {
	s := mcpserver.New("calculator", "0.1.0")

	s.RegisterTools(
		binaryOp("add", "Add two numbers together", func(a, b float64) (float64, error) {
			return a + b, nil
		}),
		binaryOp("subtract", "Subtract the second number from the first", func(a, b float64) (float64, error) {
			return a - b, nil
		}),
		binaryOp("multiply", "Multiply two numbers together", func(a, b float64) (float64, error) {
			return a * b, nil
		}),
		binaryOp("divide", "Divide the first number by the second", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("cannot divide by zero")
			}
			return a / b, nil
		}),
		powerTool(),
		squareRootTool(),
	)

	s.AddResource(capability.Resource{
		URI:         infoURI,
		Name:        "calculator-info",
		Description: "Information about available calculator operations",
		MIMEType:    "application/json",
	}, func(_ context.Context, _ string) (string, error) {
		info, err := json.Marshal(map[string]any{
			"name":    "calculator",
			"version": "0.1.0",
			"operations": []string{
				"add", "subtract", "multiply", "divide", "power", "square_root",
			},
		})
		if err != nil {
			return "", err
		}
		return string(info), nil
	})

	return s
}

// binaryOp builds a two-argument numeric tool.
func binaryOp(name, description string, op func(a, b float64) (float64, error)) toolbox.Tool {
	return toolbox.Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"a": {"type": "number", "description": "First number"},
				"b": {"type": "number", "description": "Second number"}
			},
			"required": ["a", "b"]
		}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				A float64 `json:"a"`
				B float64 `json:"b"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			result, err := op(args.A, args.B)
			if err != nil {
				return "", err
			}
			return formatNumber(result), nil
		},
	}
}

func powerTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "power",
		Description: "Raise the first number to the power of the second",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"base": {"type": "number", "description": "Base number"},
				"exponent": {"type": "number", "description": "Exponent"}
			},
			"required": ["base", "exponent"]
		}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Base     float64 `json:"base"`
				Exponent float64 `json:"exponent"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			return formatNumber(math.Pow(args.Base, args.Exponent)), nil
		},
	}
}

func squareRootTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "square_root",
		Description: "Calculate the square root of a number",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"number": {"type": "number", "description": "Number to find square root of"}
			},
			"required": ["number"]
		}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Number float64 `json:"number"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.Number < 0 {
				return "", fmt.Errorf("cannot calculate square root of negative number")
			}
			return formatNumber(math.Sqrt(args.Number)), nil
		},
	}
}

// formatNumber renders a float without a trailing ".0" for whole values, so
// the model sees "4" rather than "4.000000".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
