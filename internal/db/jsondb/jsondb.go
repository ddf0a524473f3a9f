// Package jsondb is a file backed storage: the data lives in memory and is
// loaded from a JSON file on start and written back to it on Close.
package jsondb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/patric-chuzhbe/todolist/internal/db/memorystorage"
)

type JSONDB struct {
	*memorystorage.MemoryStorage
	fileName string
}

func initDBFile(fileName string) error {
	return writeToJSONFile(fileName, memorystorage.Snapshot{})
}

func writeToJSONFile(fileName string, snapshot memorystorage.Snapshot) error {
	jsonData, err := json.MarshalIndent(snapshot, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(jsonData); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, snapshot *memorystorage.Snapshot) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(snapshot)
}

func New(fileName string) (*JSONDB, error) {
	theStorage, err := memorystorage.New()
	if err != nil {
		return nil, err
	}

	db := &JSONDB{
		MemoryStorage: theStorage,
		fileName:      fileName,
	}

	snapshot := memorystorage.Snapshot{}
	err = parseJSONFile(fileName, &snapshot)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := initDBFile(fileName); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `initDBFile()` calling: %w", err)
		}
	}
	db.Restore(snapshot)

	return db, nil
}

// Flush writes the current content to the file.
func (db *JSONDB) Flush() error {
	return writeToJSONFile(db.fileName, db.Snapshot())
}

func (db *JSONDB) Close() error {
	return db.Flush()
}
