package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peteski22/clubsync/internal/members"
)

// FileMemberSource reads member records from a JSON or CSV export.
//
// JSON files hold either an array of members or an object with a "members" array,
// the same shape the sync endpoint accepts. CSV files need a header row using the
// member field names; unknown columns are ignored.
type FileMemberSource struct {
	path string
}

// NewFileMemberSource creates a FileMemberSource for path.
func NewFileMemberSource(path string) (*FileMemberSource, error) {
	if path == "" {
		return nil, errors.New("member file path is required")
	}
	return &FileMemberSource{path: path}, nil
}

// Members reads and decodes the file.
func (s *FileMemberSource) Members(_ context.Context) ([]members.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading member file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".csv":
		return decodeMembersCSV(bytes.NewReader(data))
	default:
		return decodeMembersJSON(data)
	}
}

// decodeMembersJSON accepts a bare array or a {"members": [...]} wrapper.
func decodeMembersJSON(data []byte) ([]members.Record, error) {
	trimmed := bytes.TrimSpace(data)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var records []members.Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decoding member list: %w", err)
		}
		return records, nil
	}

	var wrapper struct {
		Members []members.Record `json:"members"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding member file: %w", err)
	}
	if wrapper.Members == nil {
		return nil, errors.New(`member file has no "members" array`)
	}

	return wrapper.Members, nil
}

// decodeMembersCSV maps header columns onto record fields.
func decodeMembersCSV(r io.Reader) ([]members.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("member file is empty")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["email"]; !ok {
		return nil, errors.New("CSV header has no email column")
	}

	var records []members.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		records = append(records, members.Record{
			Address:        field("address"),
			City:           field("city"),
			CreatedAt:      field("created_at"),
			Email:          field("email"),
			FirstName:      field("first_name"),
			JoinedDate:     field("joined_date"),
			LastName:       field("last_name"),
			MembershipType: field("membership_type"),
			Phone:          field("phone"),
			State:          field("state"),
			Status:         field("status"),
			ZipCode:        field("zip_code"),
		})
	}

	return records, nil
}
