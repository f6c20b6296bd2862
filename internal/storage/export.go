package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/restrain/internal/experiment"
)

type ExportData struct {
	Scene  string             `json:"scene"`
	Result *experiment.Result `json:"result"`
}

func ExportJSON(path, scene string, result *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, scene, result)
}

func WriteJSON(w io.Writer, scene string, result *experiment.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Scene: scene, Result: result})
}
