package biometric

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bio "github.com/dropDatabas3/facegate/internal/biometric"
	"github.com/dropDatabas3/facegate/internal/continuation"
	dto "github.com/dropDatabas3/facegate/internal/http/dto/biometric"
	tokens "github.com/dropDatabas3/facegate/internal/security/token"
	"github.com/dropDatabas3/facegate/internal/store/memory"
)

type fixture struct {
	svc   *Services
	store *memory.Store
	codec *continuation.Codec
	src   *bio.TemplateSource
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	codec, err := continuation.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	st := memory.New()
	src := bio.NewTemplateSource(st, 0)
	t.Cleanup(src.Stop)

	policy.Dimension = 3
	ids := 0
	svc := NewServices(Deps{
		Codec:     codec,
		Templates: src,
		Store:     st,
		Users:     st,
		Enroller:  st,
		Grants:    st,
		Policy:    policy,
		NewID: func() string {
			ids++
			return "id-" + string(rune('a'+ids-1))
		},
	})
	return &fixture{svc: svc, store: st, codec: codec, src: src}
}

func (f *fixture) request(t *testing.T) string {
	t.Helper()
	s, err := f.codec.Encode(continuation.Continuation{
		ClientID:    "app",
		RedirectURI: "https://app.example/cb",
		Scope:       "openid profile",
		State:       "xyz",
		Nonce:       "n-1",
	})
	require.NoError(t, err)
	return s
}

func queryOf(t *testing.T, location string) url.Values {
	t.Helper()
	u, err := url.Parse(location)
	require.NoError(t, err)
	return u.Query()
}

func TestVerify_EnrollThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{})

	res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{
		Request: f.request(t), Descriptor: "0.1,0.2,0.3", Action: dto.ActionEnroll,
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRedirect, res.Outcome)
	q := queryOf(t, res.Location)
	require.NotEmpty(t, q.Get("code"))
	assert.Equal(t, "xyz", q.Get("state"))

	code, err := f.store.ConsumeCode(ctx, tokens.SHA256Base64URL(q.Get("code")))
	require.NoError(t, err)
	enrolled := code.UserID
	assert.Equal(t, "n-1", code.Nonce)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), code.ExpiresAt, 5*time.Second)

	u, err := f.store.GetUser(ctx, enrolled)
	require.NoError(t, err)
	assert.True(t, u.FaceVerified)

	// 0.3 de distancia: match bajo el umbral por defecto.
	res, err = f.svc.Verify.Verify(ctx, dto.VerifyRequest{
		Request: f.request(t), Descriptor: "[0.4,0.2,0.3]",
	})
	require.NoError(t, err)
	code, err = f.store.ConsumeCode(ctx, tokens.SHA256Base64URL(queryOf(t, res.Location).Get("code")))
	require.NoError(t, err)
	assert.Equal(t, enrolled, code.UserID)
}

func TestVerify_NoMatchDenies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{})
	_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: "enroll"})
	require.NoError(t, err)

	res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "5,5,5"})
	require.NoError(t, err)
	q := queryOf(t, res.Location)
	assert.Equal(t, "access_denied", q.Get("error"))
	assert.Equal(t, "Face authentication failed", q.Get("error_description"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Empty(t, q.Get("code"))
}

func TestVerify_EmptyTemplateSetRequiresEnrollment(t *testing.T) {
	f := newFixture(t, Policy{RegisterURL: "/face-auth/register"})
	req := f.request(t)

	res, err := f.svc.Verify.Verify(context.Background(), dto.VerifyRequest{Request: req, Descriptor: "0.1,0.2,0.3"})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeEnrollmentRequired, res.Outcome)
	assert.Equal(t, req, queryOf(t, res.RegisterURL).Get("request"))
}

func TestVerify_InputErrors(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: "garbage", Descriptor: "0,0,0"})
	assert.ErrorIs(t, err, ErrMalformedRequest)

	res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: ""})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNoFaceDetected, res.Outcome)

	_, err = f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0.1,abc"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0.1,0.2"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: "", Descriptor: "0,0,0"})
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

func TestVerify_UnknownActionRejected(t *testing.T) {
	f := newFixture(t, Policy{})
	ctx := context.Background()

	_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: "bogus"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "action")

	// Nothing was enrolled by the rejected call.
	all, err := f.src.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: " ENROLL "})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeRedirect, res.Outcome)

	res, err = f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0"})
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeRedirect, res.Outcome, "empty action authenticates")
}

func TestVerify_DuplicatePolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("reject", func(t *testing.T) {
		f := newFixture(t, Policy{DuplicateEnrollment: DuplicateReject})
		_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: "enroll"})
		require.NoError(t, err)
		res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0.1,0,0", Action: "enroll"})
		require.NoError(t, err)
		q := queryOf(t, res.Location)
		assert.Equal(t, "access_denied", q.Get("error"))
		assert.Equal(t, "face already enrolled", q.Get("error_description"))
	})

	t.Run("merge", func(t *testing.T) {
		f := newFixture(t, Policy{DuplicateEnrollment: DuplicateMerge})
		_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: "enroll"})
		require.NoError(t, err)
		res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0.1,0,0", Action: "register"})
		require.NoError(t, err)
		require.NotEmpty(t, queryOf(t, res.Location).Get("code"))

		all, err := f.store.ListTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, all[0].UserID, all[1].UserID)
	})

	t.Run("allow", func(t *testing.T) {
		f := newFixture(t, Policy{DuplicateEnrollment: DuplicateAllow})
		for i := 0; i < 2; i++ {
			_, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: f.request(t), Descriptor: "0,0,0", Action: "enroll"})
			require.NoError(t, err)
		}
		all, err := f.store.ListTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.NotEqual(t, all[0].UserID, all[1].UserID)
	})
}

func TestRegisterProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{})

	_, err := f.svc.Register.RegisterProfile(ctx, dto.RegisterProfileRequest{
		Request: f.request(t), FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Register.RegisterProfile(ctx, dto.RegisterProfileRequest{
		Request: "nope", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrMalformedRequest)

	out, err := f.svc.Register.RegisterProfile(ctx, dto.RegisterProfileRequest{
		Request: f.request(t), FirstName: " Ada ", LastName: "Lovelace", Email: "ada@example.com", Phone: "+5491100000000",
	})
	require.NoError(t, err)
	assert.Equal(t, out.Request, queryOf(t, out.CaptureURL).Get("request"))

	res, err := f.svc.Verify.Verify(ctx, dto.VerifyRequest{Request: out.Request, Descriptor: "0.5,0.5,0.5", Action: "enroll"})
	require.NoError(t, err)
	code, err := f.store.ConsumeCode(ctx, tokens.SHA256Base64URL(queryOf(t, res.Location).Get("code")))
	require.NoError(t, err)
	u, err := f.store.GetUser(ctx, code.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.GivenName)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.True(t, u.EmailVerified)
	assert.True(t, u.PhoneVerified)
}
