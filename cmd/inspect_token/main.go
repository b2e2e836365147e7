// Command inspect_token decodes the bearer token persisted by a login and
// prints its claims. Handy when debugging session rehydration: it shows the
// same identity and expiry the gateway reads at startup.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mikelesnr/tsviyo-frontend/internal/config"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

func main() {
	godotenv.Load()

	credential := ""
	if len(os.Args) > 1 {
		credential = os.Args[1]
	} else {
		// No argument: read the persisted session from the store.
		ctx := context.Background()
		cfg, err := config.Load(ctx)
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}
		kv, err := store.NewRedis(ctx, store.RedisOptions{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL,
		})
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer kv.Close()

		var user models.User
		found, err := kv.Get(ctx, "session:user", &user)
		if err != nil {
			log.Fatalf("failed to read persisted session: %v", err)
		}
		if !found {
			log.Fatal("no persisted session found")
		}
		fmt.Printf("Persisted user: %d (%s, %s)\n", user.ID, user.Email, user.Role)
		credential = user.Token
	}

	claims, err := session.InspectToken(credential)
	if err != nil {
		log.Fatalf("failed to decode token: %v", err)
	}

	fmt.Printf("user_id: %d\n", claims.UserID)
	if claims.Role != "" {
		fmt.Printf("role:    %s\n", claims.Role)
	}
	if claims.IssuedAt != nil {
		fmt.Printf("issued:  %s\n", claims.IssuedAt.Format(time.RFC3339))
	}
	if claims.ExpiresAt != nil {
		fmt.Printf("expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
		if claims.Expired(time.Now()) {
			fmt.Println("status:  EXPIRED")
		} else {
			fmt.Println("status:  valid")
		}
	} else {
		fmt.Println("expires: never")
	}
}
