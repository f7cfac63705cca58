package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadPositions loads one "x y" pair per line, the format used by the scenario
// files. Extra columns are ignored.
func ReadPositions(filePath string) ([]Position, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParsePositions(file)
}

func ParsePositions(r io.Reader) ([]Position, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	positions := make([]Position, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		fields := strings.Fields(record[0])
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected \"x y\", got %q", line, record[0])
		}

		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		positions = append(positions, Position{x, y})
	}

	return positions, nil
}
