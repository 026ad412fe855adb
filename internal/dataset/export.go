package dataset

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	DatasetID string          `json:"dataset_id"`
	Episode   int             `json:"episode"`
	Steps     int             `json:"steps"`
	ActionDim int             `json:"action_dim"`
	Actions   [][]float64     `json:"actions"`
	Channels  []ChannelExport `json:"channels"`
}

type ChannelExport struct {
	Name   string      `json:"name"`
	Kind   string      `json:"kind"`
	DType  string      `json:"dtype"`
	Shape  []int       `json:"shape"`
	Frames int         `json:"frames"`
	Values [][]float64 `json:"values,omitempty"`
}

func buildExport(id string, ep Episode, actions *Array, obs *Archive, rules Rules) ExportData {
	data := ExportData{
		DatasetID: id,
		Episode:   ep.Index,
		Steps:     actions.Frames(),
		ActionDim: actions.Dims(),
		Actions:   make([][]float64, actions.Frames()),
	}
	for i := range data.Actions {
		data.Actions[i] = actions.Vector(i)
	}

	for _, arr := range obs.Arrays() {
		kind := rules.Classify(arr.Name)
		ch := ChannelExport{
			Name:   arr.Name,
			Kind:   kind.String(),
			DType:  arr.DType,
			Shape:  arr.Shape,
			Frames: arr.Frames(),
		}
		if kind == ChannelRobot && len(arr.Shape) == 2 {
			ch.Values = make([][]float64, arr.Frames())
			for i := range ch.Values {
				ch.Values[i] = arr.Vector(i)
			}
		}
		data.Channels = append(data.Channels, ch)
	}
	return data
}

func ExportJSON(path, id string, ep Episode, actions *Array, obs *Archive, rules Rules) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeExport(file, id, ep, actions, obs, rules)
}

func ExportJSONStdout(id string, ep Episode, actions *Array, obs *Archive, rules Rules) error {
	return writeExport(os.Stdout, id, ep, actions, obs, rules)
}

func writeExport(w io.Writer, id string, ep Episode, actions *Array, obs *Archive, rules Rules) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(id, ep, actions, obs, rules))
}
