// Package trackers implements Trackers, which cache the data generated
// during an experiment and save it to disk
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/multiworld/timestep"
)

// Tracker tracks and saves data generated by an experiment
type Tracker interface {
	// Track caches the data of a single TimeStep
	Track(step ts.TimeStep)

	// Save saves all cached data
	Save() error
}

// save gob-encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		return fmt.Errorf("could not encode data: %v", err)
	}
	return nil
}

// LoadData loads the data saved by a Tracker at filename
func LoadData[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open file: %v", err)
	}
	defer file.Close()

	var data []T
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}
