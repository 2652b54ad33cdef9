package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"marketsync/pkg/config"
	"marketsync/pkg/logger"
)

// Clients bundles the handles opened from one Firebase app.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Open initialises the Firebase app from the configured credentials and opens
// the Firestore and Auth clients on it.
func Open(ctx context.Context, cfg *config.Config) (*Clients, error) {
	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.ServiceAccountPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	default:
		logger.Warn("no service account configured, using application default credentials")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("error initializing firebase auth: %w", err)
	}

	logger.Info("firestore connected", "project", cfg.FirebaseProject)
	return &Clients{App: app, Firestore: fs, Auth: authClient}, nil
}

func (c *Clients) Close() error {
	return c.Firestore.Close()
}
