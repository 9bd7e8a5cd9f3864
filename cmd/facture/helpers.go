package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Kdotropez/facture-fournisseur/internal/common"
	"github.com/Kdotropez/facture-fournisseur/internal/config"
	"github.com/Kdotropez/facture-fournisseur/internal/engine"
	"github.com/Kdotropez/facture-fournisseur/internal/model"
	"github.com/Kdotropez/facture-fournisseur/internal/storage"
)

// initArchive opens the SQLite invoice archive and applies pending
// migrations.
func initArchive(ctx context.Context) (*storage.SQLiteArchive, error) {
	dbPath := viper.GetString("database.archive_path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/facture/archive.db"
	}
	dbPath = config.ExpandPath(dbPath)

	archive, err := storage.NewSQLiteArchive(dbPath)
	if err != nil {
		return nil, err
	}
	if err := archive.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return archive, nil
}

// initKV opens the bolt store backing profiles and the catalog.
func initKV() (storage.KV, error) {
	path := viper.GetString("database.store_path")
	if path == "" {
		path = "$HOME/.local/share/facture/facture.db"
	}
	return storage.NewBoltKV(config.ExpandPath(path))
}

// initEngine wires the engine on top of the bolt store. The caller must
// close the returned KV.
func initEngine() (*engine.Engine, *storage.ProfileStore, storage.KV, error) {
	kv, err := initKV()
	if err != nil {
		return nil, nil, nil, err
	}

	profiles := storage.NewProfileStore(kv)
	catalog := storage.NewReferenceCatalog(kv, viper.GetBool("catalog.prefer_longer"))
	eng := engine.NewWithConfig(profiles, catalog, engine.Config{
		SimilarityThreshold: viper.GetFloat64("matching.similarity_threshold"),
	})
	return eng, profiles, kv, nil
}

func initCatalog() (*storage.ReferenceCatalog, storage.KV, error) {
	kv, err := initKV()
	if err != nil {
		return nil, nil, err
	}
	return storage.NewReferenceCatalog(kv, viper.GetBool("catalog.prefer_longer")), kv, nil
}

// readInvoiceFile loads an invoice from a JSON file.
func readInvoiceFile(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, common.NewUserError(fmt.Sprintf("%s is not a valid invoice JSON file", path), err)
	}
	return &inv, nil
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
