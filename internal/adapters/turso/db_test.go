package turso

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/emiliopalmerini/agentlab/internal/infrastructure/config"
)

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Database
		want    string
		wantErr bool
	}{
		{"local file", config.Database{URL: "file:agentlab.db", AuthToken: "ignored"}, "file:agentlab.db", false},
		{"remote", config.Database{URL: "libsql://db.turso.io", AuthToken: "a+b"}, "libsql://db.turso.io?authToken=a%2Bb", false},
		{"remote without token", config.Database{URL: "libsql://db.turso.io"}, "", true},
		{"empty", config.Database{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("dataSourceName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("dataSourceName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDB_LocalFile(t *testing.T) {
	db, err := NewDB(context.Background(), config.Database{URL: "file:" + filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
