package perfil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gestaoportuaria/backoffice/internal/repo"
)

type stubPermissoes struct {
	porUsuario map[uuid.UUID][]Permissao
	chamadas   int
}

func (s *stubPermissoes) ListPermissoesPorUsuario(ctx context.Context, userID uuid.UUID) ([]Permissao, error) {
	s.chamadas++
	return s.porUsuario[userID], nil
}

func TestAuthorizeAdminSempre(t *testing.T) {
	policy := NewPolicy(&stubPermissoes{})

	ok, err := policy.Authorize(context.Background(), uuid.New(), []string{repo.RoleAdmin}, "mensalidades", AcaoExcluir)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !ok {
		t.Fatal("admin deveria ser autorizado")
	}
}

func TestAuthorizeUsuarioPorPermissao(t *testing.T) {
	userID := uuid.New()
	stub := &stubPermissoes{porUsuario: map[uuid.UUID][]Permissao{
		userID: {
			{Recurso: "operadores", PodeVisualizar: true, PodeCriar: true},
			{Recurso: "mensalidades", PodeVisualizar: true},
		},
	}}
	policy := NewPolicy(stub)
	ctx := context.Background()
	roles := []string{repo.RoleUsuario}

	cases := []struct {
		recurso string
		acao    string
		want    bool
	}{
		{"operadores", AcaoCriar, true},
		{"operadores", AcaoExcluir, false},
		{"mensalidades", AcaoVisualizar, true},
		{"mensalidades", AcaoEditar, false},
		{"terminais", AcaoVisualizar, false},
	}

	for _, tc := range cases {
		ok, err := policy.Authorize(ctx, userID, roles, tc.recurso, tc.acao)
		if err != nil {
			t.Fatalf("Authorize(%s, %s): %v", tc.recurso, tc.acao, err)
		}
		if ok != tc.want {
			t.Errorf("Authorize(%s, %s) = %v, quer %v", tc.recurso, tc.acao, ok, tc.want)
		}
	}
}

func TestAuthorizeSemPapelConhecido(t *testing.T) {
	policy := NewPolicy(&stubPermissoes{})

	ok, err := policy.Authorize(context.Background(), uuid.New(), []string{repo.RoleTrabalhadorAvulso}, "operadores", AcaoVisualizar)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ok {
		t.Fatal("trabalhador avulso não deveria acessar recursos administrativos")
	}
}

func TestAuthorizeUsaCache(t *testing.T) {
	userID := uuid.New()
	stub := &stubPermissoes{porUsuario: map[uuid.UUID][]Permissao{
		userID: {{Recurso: "operadores", PodeVisualizar: true}},
	}}
	policy := NewPolicy(stub)
	ctx := context.Background()
	roles := []string{repo.RoleUsuario}

	for i := 0; i < 3; i++ {
		if _, err := policy.Authorize(ctx, userID, roles, "operadores", AcaoVisualizar); err != nil {
			t.Fatalf("Authorize: %v", err)
		}
	}
	if stub.chamadas != 1 {
		t.Errorf("chamadas ao repositório = %d, quer 1", stub.chamadas)
	}

	policy.Invalidate(userID)
	if _, err := policy.Authorize(ctx, userID, roles, "operadores", AcaoVisualizar); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if stub.chamadas != 2 {
		t.Errorf("chamadas após Invalidate = %d, quer 2", stub.chamadas)
	}
}
