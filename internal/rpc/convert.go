package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/RowanDark/0xcrack/internal/cipher"
)

// reportToStruct encodes a report through its JSON form so the Struct keys
// match the REST API.
func reportToStruct(report *cipher.Report) (*structpb.Struct, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert report: %w", err)
	}
	return out, nil
}

func structToReport(in *structpb.Struct) (*cipher.Report, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("convert report: %w", err)
	}
	var report cipher.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

func operationsToStruct(infos []cipher.OperationInfo) (*structpb.Struct, error) {
	list := make([]any, 0, len(infos))
	for _, info := range infos {
		params := make([]any, 0, len(info.Params))
		for _, p := range info.Params {
			params = append(params, p)
		}
		list = append(list, map[string]any{
			"name":        info.Name,
			"type":        info.Type,
			"description": info.Description,
			"params":      params,
			"reversible":  info.Reversible,
		})
	}
	return structpb.NewStruct(map[string]any{"operations": list})
}

func structToOperations(in *structpb.Struct) ([]cipher.OperationInfo, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("convert operations: %w", err)
	}
	var resp struct {
		Operations []cipher.OperationInfo `json:"operations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return resp.Operations, nil
}
