package models

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Schema tooling for the relational storage backend.

GENERATE_MODELS=true migrates kv_entries and writes typed query helpers to GENERATE_OUT_PATH (./query by default).
GENERATE_COLUMN_REPORT=true lists columns present in the database but missing from KVEntry:

	--- Table: kv_entries ---
	Found 1 columns not accounted for in model:
	  - created_at
*/

// Tables maps every table managed by the storage backend to its model.
var Tables = map[string]interface{}{
	"kv_entries": KVEntry{},
}

// Migrate creates or updates the storage tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return fmt.Errorf("migrate kv_entries: %w", err)
	}
	return nil
}

// GenerateModels migrates the schema, prints the column report and writes query helpers.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	migrateDB := db.Session(&gorm.Session{SkipDefaultTransaction: true, PrepareStmt: false})
	if err := Migrate(migrateDB); err != nil {
		return err
	}
	log.Info().Msg("Database migration completed")

	if _, err := ColumnMismatchReport(db); err != nil {
		return err
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(KVEntry{})
	g.Execute()

	log.Info().Str("outPath", outPath).Msg("Model generation complete")
	return nil
}

// ColumnMismatchReport logs and returns, per table, the database columns the model does not declare.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string, len(Tables))

	for tableName, model := range Tables {
		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				log.Warn().Str("table", tableName).Msg("Table does not exist yet")
				continue
			}
			return nil, err
		}

		mismatches := findColumnMismatches(dbColumns, getModelFields(model))
		report[tableName] = mismatches

		if len(mismatches) > 0 {
			log.Warn().Str("table", tableName).Strs("columns", mismatches).Msg("Columns not accounted for in model")
		} else {
			log.Info().Str("table", tableName).Msg("All columns are accounted for in the model")
		}
	}

	return report, nil
}

// getTableColumns retrieves column names from a database table
func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	if !db.Migrator().HasTable(tableName) {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}

	types, err := db.Migrator().ColumnTypes(tableName)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}

	columns := make([]string, 0, len(types))
	for _, ct := range types {
		columns = append(columns, ct.Name())
	}
	return columns, nil
}

// getModelFields extracts column names from a struct's gorm tags
func getModelFields(model interface{}) []string {
	var fields []string
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}

		if columnName := extractColumnNameFromGormTag(field.Tag.Get("gorm")); columnName != "" {
			fields = append(fields, columnName)
		}
	}

	return fields
}

func extractColumnNameFromGormTag(gormTag string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}

	return mismatches
}
