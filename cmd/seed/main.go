// Package main seeds an Inkwell database with demo users and posts.
//
// Usage:
//
//	DB_PATH=~/.inkwell/db go run ./cmd/seed
//	DB_PATH=~/.inkwell/db go run ./cmd/seed --users 10 --posts 40
//	go run ./cmd/seed --dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/inkwellapp/inkwell-server/internal/accounts"
	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/posts"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

var (
	userCount = flag.Int("users", 5, "Number of demo users to create")
	postCount = flag.Int("posts", 20, "Number of demo posts to create")
	password  = flag.String("password", "password123", "Password for every demo user")
	seed      = flag.Int64("seed", 0, "Random seed (0 picks one)")
	dryRun    = flag.Bool("dry-run", false, "Seed an in-memory database and discard it")
)

var topics = []string{"go", "databases", "writing", "travel", "design", "music", "cooking", "science"}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.inkwell/db")
	}

	var (
		s   *store.Store
		err error
	)
	if *dryRun {
		fmt.Println("Dry run: seeding an in-memory database")
		s, err = store.NewInMemory(nil)
	} else {
		fmt.Printf("Opening database at: %s\n", dbPath)
		s, err = store.New(dbPath, nil)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	faker := gofakeit.New(*seed)

	existingUsers, err := s.LoadUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to load users: %v", err)
	}
	existingPosts, err := s.LoadPosts(ctx)
	if err != nil {
		log.Fatalf("Failed to load posts: %v", err)
	}

	users := accounts.NewDirectory(existingUsers, auth.NewPasswordHasher(auth.DefaultArgon2Params()))
	postStore := posts.NewStore(existingPosts)

	created := createUsers(ctx, s, users, faker)
	if len(created) == 0 {
		log.Fatal("No users available to author posts.")
	}

	createPosts(ctx, s, postStore, created, faker)

	fmt.Printf("\nDone. Sign in as any of the users above with password %q.\n", *password)
}

func createUsers(ctx context.Context, s *store.Store, users *accounts.Directory, faker *gofakeit.Faker) []*domain.User {
	fmt.Printf("\nCreating %d users...\n", *userCount)

	var created []*domain.User
	for range *userCount {
		username := strings.ToLower(faker.Username())
		u, err := users.Signup(domain.SignupDraft{
			Username: username,
			FullName: faker.Name(),
			Email:    username + "@" + faker.DomainName(),
			Password: *password,
		})
		if err != nil {
			fmt.Printf("  Skipping %s: %v\n", username, err)
			continue
		}
		if err := s.Users.Create(ctx, store.IDKey(u.ID), u); err != nil {
			users.Remove(u.ID)
			fmt.Printf("  Skipping %s: %v\n", username, err)
			continue
		}
		fmt.Printf("  Created user %d: %s\n", u.ID, u.Username)
		created = append(created, u)
	}
	return created
}

func createPosts(ctx context.Context, s *store.Store, postStore *posts.Store, authors []*domain.User, faker *gofakeit.Faker) {
	fmt.Printf("\nCreating %d posts...\n", *postCount)

	for range *postCount {
		author := authors[faker.Number(0, len(authors)-1)]
		post, err := postStore.CreatePost(domain.PostDraft{
			Title:   faker.HipsterSentence(faker.Number(3, 7)),
			Content: faker.Paragraph(faker.Number(2, 5), 4, 12, "\n\n"),
			Tags:    pickTags(faker),
		}, author)
		if err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}

		for _, reader := range authors {
			if faker.Bool() {
				if _, err := postStore.ToggleLike(post.ID, reader); err != nil {
					log.Fatalf("Failed to like post: %v", err)
				}
			}
		}
		for range faker.Number(0, 3) {
			reader := authors[faker.Number(0, len(authors)-1)]
			if _, _, err := postStore.AddComment(post.ID, reader, faker.Sentence(faker.Number(4, 14))); err != nil {
				log.Fatalf("Failed to comment: %v", err)
			}
		}

		final, _ := postStore.Get(post.ID)
		if err := s.SavePost(ctx, final); err != nil {
			log.Fatalf("Failed to save post %d: %v", post.ID, err)
		}
		fmt.Printf("  Post %d by %s: %d likes, %d comments\n", final.ID, author.Username, final.Likes, len(final.Comments))
	}
}

func pickTags(faker *gofakeit.Faker) []string {
	n := faker.Number(1, 3)
	tags := make([]string, 0, n)
	for _, i := range faker.Rand.Perm(len(topics))[:n] {
		tags = append(tags, topics[i])
	}
	return tags
}
