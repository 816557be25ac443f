package api

import (
	"fmt"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/projectbrain/internal/errors"
	"github.com/diogo/projectbrain/internal/models"
)

// Response field paths
const (
	PathAnswer  = "answer"
	PathData    = "data"
	PathSources = "sources"
	PathSource  = "source"
	PathPage    = "page"
	PathStatus  = "status"
)

// Normalize turns a capability response body into an assistant message.
// Each capability is decoded explicitly: a missing or mistyped field yields
// a DecodeError instead of an empty message.
func Normalize(intent models.Intent, body []byte) (models.Message, error) {
	if !gjson.ValidBytes(body) {
		return models.Message{}, apierrors.NewDecodeError("", "response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return models.Message{}, apierrors.NewDecodeError("", "response is not a JSON object")
	}

	sources := parseSources(root.Get(PathSources))

	var (
		msg models.Message
		err error
	)
	switch intent {
	case models.IntentQA:
		msg, err = decodeAnswer(root, sources)
	case models.IntentExtract:
		msg, err = decodeExtraction(root, sources)
	default:
		return models.Message{}, apierrors.NewDecodeError("", fmt.Sprintf("unknown intent %q", intent))
	}
	if err != nil {
		return models.Message{}, err
	}

	msg.Intent = intent
	return msg, nil
}

// decodeAnswer handles {"answer": string}
func decodeAnswer(root gjson.Result, sources []models.Source) (models.Message, error) {
	answer := root.Get(PathAnswer)
	if !answer.Exists() {
		return models.Message{}, apierrors.NewDecodeError(PathAnswer, "field is missing")
	}
	if answer.Type != gjson.String {
		return models.Message{}, apierrors.NewDecodeError(PathAnswer, "expected a string, got "+answer.Type.String())
	}
	return models.NewAssistantText(answer.String(), sources), nil
}

// decodeExtraction handles {"data": [ {column: scalar} ]}. A null data
// field is an empty table; a missing one is an error.
func decodeExtraction(root gjson.Result, sources []models.Source) (models.Message, error) {
	data := root.Get(PathData)
	if !data.Exists() {
		return models.Message{}, apierrors.NewDecodeError(PathData, "field is missing")
	}
	if data.Type == gjson.Null {
		return models.NewAssistantTable([]models.Row{}, sources), nil
	}
	if !data.IsArray() {
		return models.Message{}, apierrors.NewDecodeError(PathData, "expected an array, got "+data.Type.String())
	}

	rows := []models.Row{}
	var rowErr error
	data.ForEach(func(idx, item gjson.Result) bool {
		if !item.IsObject() {
			rowErr = apierrors.NewDecodeError(fmt.Sprintf("%s.%d", PathData, idx.Int()), "expected an object")
			return false
		}
		row := models.Row{}
		item.ForEach(func(key, value gjson.Result) bool {
			row = append(row, models.Cell{Column: key.String(), Value: scalarValue(value)})
			return true
		})
		rows = append(rows, row)
		return true
	})
	if rowErr != nil {
		return models.Message{}, rowErr
	}

	return models.NewAssistantTable(rows, sources), nil
}

// scalarValue converts a cell value. Nested values are kept as their raw JSON.
func scalarValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True, gjson.False:
		return v.Bool()
	default:
		return v.Raw
	}
}

// parseSources returns the citations when sources is an array, nil otherwise
func parseSources(v gjson.Result) []models.Source {
	if !v.IsArray() {
		return nil
	}

	sources := []models.Source{}
	v.ForEach(func(_, item gjson.Result) bool {
		src := models.Source{}
		if item.Type == gjson.String {
			src.Source = item.String()
		} else {
			src.Source = item.Get(PathSource).String()
			src.Page = item.Get(PathPage).String()
		}
		sources = append(sources, src)
		return true
	})
	return sources
}
