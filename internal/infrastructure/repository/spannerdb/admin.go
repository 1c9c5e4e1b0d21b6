package spannerdb

import (
	"context"
	"fmt"
	"strings"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DatabasePath is a parsed "projects/P/instances/I/databases/D" name.
type DatabasePath struct {
	Project  string
	Instance string
	Database string
}

// ParseDatabasePath splits a fully qualified Spanner database name.
func ParseDatabasePath(name string) (DatabasePath, error) {
	parts := strings.Split(name, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "instances" || parts[4] != "databases" {
		return DatabasePath{}, fmt.Errorf("invalid spanner database name %q", name)
	}
	return DatabasePath{Project: parts[1], Instance: parts[3], Database: parts[5]}, nil
}

func (p DatabasePath) InstanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", p.Project, p.Instance)
}

func (p DatabasePath) String() string {
	return fmt.Sprintf("%s/databases/%s", p.InstanceName(), p.Database)
}

// EnsureInstance creates the instance on the emulator config when it is missing.
func EnsureInstance(ctx context.Context, path DatabasePath) error {
	admin, err := instance.NewInstanceAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer admin.Close()

	_, err = admin.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: path.InstanceName()})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to get instance: %w", err)
	}

	op, err := admin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     fmt.Sprintf("projects/%s", path.Project),
		InstanceId: path.Instance,
		Instance: &instancepb.Instance{
			Config:      fmt.Sprintf("projects/%s/instanceConfigs/emulator-config", path.Project),
			DisplayName: path.Instance,
			NodeCount:   1,
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create instance: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed waiting for instance: %w", err)
	}
	return nil
}

// EnsureDatabase creates the database with SchemaDDL when it does not exist.
// It reports whether the database was created.
func EnsureDatabase(ctx context.Context, path DatabasePath) (bool, error) {
	admin, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer admin.Close()

	_, err = admin.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: path.String()})
	if err == nil {
		return false, nil
	}
	if status.Code(err) != codes.NotFound {
		return false, fmt.Errorf("failed to get database: %w", err)
	}

	op, err := admin.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          path.InstanceName(),
		CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", path.Database),
		ExtraStatements: SchemaDDL,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create database: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return false, fmt.Errorf("failed waiting for database: %w", err)
	}
	return true, nil
}

// DropDatabase removes the database. Used by tests.
func DropDatabase(ctx context.Context, path DatabasePath) error {
	admin, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create database admin client: %w", err)
	}
	defer admin.Close()

	return admin.DropDatabase(ctx, &databasepb.DropDatabaseRequest{Database: path.String()})
}
