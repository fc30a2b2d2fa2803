package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"ilim-checkout/internal/domain"
)

type fakeSecrets struct {
	value *string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{Name: params.SecretId, SecretString: f.value}, nil
}

func TestSecretsManagerStore_LoadsAndCaches(t *testing.T) {
	fake := &fakeSecrets{value: aws.String(`{"subject":"svc-checkout","access_token":"abc"}`)}
	store := NewSecretsManagerStoreWithClient(fake, "ilim/checkout")

	for i := 0; i < 2; i++ {
		auth, err := store.Load(context.Background())
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if auth.AccessToken != "abc" || auth.Subject != "svc-checkout" {
			t.Errorf("unexpected session %+v", auth)
		}
	}

	if fake.calls != 1 {
		t.Errorf("expected the secret to be fetched once, got %d", fake.calls)
	}
}

func TestSecretsManagerStore_MissingToken(t *testing.T) {
	fake := &fakeSecrets{value: aws.String(`{"subject":"svc-checkout"}`)}
	store := NewSecretsManagerStoreWithClient(fake, "ilim/checkout")

	_, err := store.Load(context.Background())

	var authErr *domain.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestSecretsManagerStore_BinarySecret(t *testing.T) {
	store := NewSecretsManagerStoreWithClient(&fakeSecrets{}, "ilim/checkout")

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a secret without string value")
	}
}

func TestSecretsManagerStore_FetchError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewSecretsManagerStoreWithClient(&fakeSecrets{err: boom}, "ilim/checkout")

	_, err := store.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the fetch error to be wrapped, got %v", err)
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"abc":          "abc",
	}

	for header, want := range cases {
		auth, err := FromAuthorizationHeader("", header).Load(context.Background())
		if err != nil {
			t.Fatalf("header %q: %v", header, err)
		}
		if auth.AccessToken != want {
			t.Errorf("header %q: expected %q, got %q", header, want, auth.AccessToken)
		}
		if auth.Subject != SubjectForToken("abc") {
			t.Errorf("header %q: expected derived subject, got %q", header, auth.Subject)
		}
	}
}

func TestSubjectForToken(t *testing.T) {
	alice := SubjectForToken("alice-token")
	if alice != SubjectForToken("alice-token") {
		t.Error("expected the same token to map to the same subject")
	}
	if alice == SubjectForToken("bob-token") {
		t.Error("expected different tokens to map to different subjects")
	}
	if !strings.HasPrefix(alice, "u-") || len(alice) != 34 {
		t.Errorf("unexpected subject format %q", alice)
	}
	if strings.Contains(alice, "alice-token") {
		t.Error("subject must not contain the token")
	}
	if SubjectForToken("") != "" {
		t.Error("expected no subject for an empty token")
	}
}

func TestFromAuthorizationHeader_ExplicitSubject(t *testing.T) {
	auth, err := FromAuthorizationHeader("student", "Bearer abc").Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if auth.Subject != "student" {
		t.Errorf("expected explicit subject to win, got %q", auth.Subject)
	}
}

func TestStatic_EmptyToken(t *testing.T) {
	_, err := FromAuthorizationHeader("", "Bearer ").Load(context.Background())

	var authErr *domain.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}
