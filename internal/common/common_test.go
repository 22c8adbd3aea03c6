package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetInfo(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	info := GetInfo(start)

	// Check if basic fields are populated
	if info.Hostname == "" {
		t.Error("Hostname is empty")
	}

	if info.OS == "" {
		t.Error("OS is empty")
	}

	if info.Version == "" {
		t.Error("Version is empty")
	}

	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}

	if info.NumCPU <= 0 {
		t.Errorf("NumCPU should be positive, got %d", info.NumCPU)
	}

	if !info.StartTime.Equal(start) {
		t.Errorf("StartTime should be %v, got %v", start, info.StartTime)
	}

	if !strings.HasPrefix(info.Uptime, "1m3") {
		t.Errorf("Uptime should be about 1m30s, got %s", info.Uptime)
	}

	if info.Tables == nil {
		t.Error("Tables map should be initialized")
	}
}

func TestInfoString(t *testing.T) {
	info := GetInfo(time.Now())
	info.Requests = 7
	info.Tables["tasks"] = 3
	info.Tables["archive"] = 1
	strInfo := info.String()

	// Check if all the expected fields are in the string representation
	expectedFields := []string{
		"Hostname:",
		"OS:",
		"Version:",
		"Go Version:",
		"NumCPU:",
		"Uptime:",
		"Requests: 7",
		"Table tasks: 3 records",
	}

	for _, field := range expectedFields {
		if !strings.Contains(strInfo, field) {
			t.Errorf("Expected string to contain '%s', but it doesn't", field)
		}
	}

	if strings.Index(strInfo, "Table archive") > strings.Index(strInfo, "Table tasks") {
		t.Error("Tables should be listed in name order")
	}
}

// Setup a temporary file for testing file operations
func setupTempFile(t *testing.T, data []byte) string {
	filePath := filepath.Join(t.TempDir(), "test-file.txt")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return filePath
}

func TestReadBlob(t *testing.T) {
	testData := []byte("test data for ReadBlob")
	filePath := setupTempFile(t, testData)

	data, err := ReadBlob(filePath)
	if err != nil {
		t.Fatalf("ReadBlob failed: %v", err)
	}

	if !bytes.Equal(data, testData) {
		t.Errorf("Content mismatch. Got %v, want %v", data, testData)
	}

	// Test reading non-existent file
	_, err = ReadBlob("non-existent-file.txt")
	if !os.IsNotExist(err) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestSaveBlob(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "save-test.json")

	if err := SaveBlob(filePath, []byte("first")); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}

	// Overwrite the existing file
	testData := []byte("second version")
	if err := SaveBlob(filePath, testData); err != nil {
		t.Fatalf("SaveBlob failed on overwrite: %v", err)
	}

	savedData, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}

	if !bytes.Equal(savedData, testData) {
		t.Errorf("Content mismatch. Got %s, want %s", savedData, testData)
	}

	// No temporary files should be left behind
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read temp dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file in %s, found %d", tmpDir, len(entries))
	}
}

func TestSaveBlobMissingDirectory(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "missing", "save-test.json")
	if err := SaveBlob(filePath, []byte("data")); err == nil {
		t.Error("Expected an error when the directory does not exist")
	}
}

func TestFileExists(t *testing.T) {
	filePath := setupTempFile(t, []byte("test data for FileExists"))

	// Check existing file
	if !FileExists(filePath) {
		t.Errorf("FileExists returned false for existing file %s", filePath)
	}

	// Check non-existent file
	if FileExists("non-existent-file.txt") {
		t.Errorf("FileExists returned true for non-existent file")
	}
}
