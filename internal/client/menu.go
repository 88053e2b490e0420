package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const separator = "--------------------------------------------------"

type styles struct {
	header  lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	done    lipgloss.Style
	pending lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		header:  r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		muted:   r.NewStyle().Faint(true),
		done:    r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		pending: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Menu is the interactive text front end. It never exits on a failed
// request; the user can simply try again.
type Menu struct {
	client *Client
	in     *bufio.Scanner
	out    io.Writer
	st     styles
}

func NewMenu(c *Client, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		client: c,
		in:     bufio.NewScanner(in),
		out:    out,
		st:     newStyles(out),
	}
}

// Run loops until the user picks 0, input ends or ctx is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("\n%s\n", m.st.header.Render("=== Menu ==="))
		m.printf("1 - Listar tarefas\n2 - Criar tarefa\n3 - Atualizar tarefa\n4 - Deletar tarefa\n5 - Visualizar tarefa\n0 - Sair\n")

		choice, ok := m.prompt("Escolha uma opção: ")
		if !ok {
			return m.in.Err()
		}

		switch choice {
		case "1":
			m.list(ctx)
		case "2":
			m.create(ctx)
		case "3":
			m.update(ctx)
		case "4":
			m.delete(ctx)
		case "5":
			m.view(ctx)
		case "0":
			m.printf("Saindo...\n")
			return nil
		default:
			m.printf("%s\n", m.st.failure.Render("Opção inválida!"))
		}
	}
}

func (m *Menu) list(ctx context.Context) {
	list, err := m.client.List(ctx)
	if err != nil {
		m.report(err, "Erro ao buscar tarefas.")
		return
	}
	if len(list) == 0 {
		m.printf("%s\n", m.st.muted.Render("Nenhuma tarefa encontrada."))
		return
	}
	for _, t := range list {
		m.printTask(t)
	}
}

func (m *Menu) create(ctx context.Context) {
	title, ok := m.prompt("Digite o título da tarefa: ")
	if !ok {
		return
	}
	desc, ok := m.prompt("Digite a descrição da tarefa (opcional): ")
	if !ok {
		return
	}

	var descPtr *string
	if desc != "" {
		descPtr = &desc
	}
	if _, err := m.client.Create(ctx, title, descPtr); err != nil {
		m.report(err, "Erro ao criar tarefa.")
		return
	}
	m.printf("%s\n", m.st.ok.Render("Tarefa criada com sucesso!"))
}

func (m *Menu) update(ctx context.Context) {
	id, ok := m.promptID()
	if !ok {
		return
	}
	title, ok := m.prompt("Digite o novo título (ou deixe vazio para não alterar): ")
	if !ok {
		return
	}
	done, ok := m.prompt("Marcar como concluída? (s/n, deixe vazio para não alterar): ")
	if !ok {
		return
	}

	var u Update
	if title != "" {
		u.Title = &title
	}
	switch strings.ToLower(done) {
	case "s":
		s := "done"
		u.Status = &s
	case "n":
		s := "pending"
		u.Status = &s
	}

	if _, err := m.client.Update(ctx, id, u); err != nil {
		m.report(err, "Erro ao atualizar tarefa.")
		return
	}
	m.printf("%s\n", m.st.ok.Render("Tarefa atualizada com sucesso!"))
}

func (m *Menu) delete(ctx context.Context) {
	id, ok := m.promptID()
	if !ok {
		return
	}
	if err := m.client.Delete(ctx, id); err != nil {
		m.report(err, "Erro ao deletar tarefa.")
		return
	}
	m.printf("%s\n", m.st.ok.Render("Tarefa deletada com sucesso!"))
}

func (m *Menu) view(ctx context.Context) {
	id, ok := m.promptID()
	if !ok {
		return
	}
	t, err := m.client.Get(ctx, id)
	if err != nil {
		m.report(err, "Erro ao buscar tarefa.")
		return
	}
	m.printTask(t)
}

func (m *Menu) printTask(t Task) {
	status := m.st.pending.Render("❌ Pendente")
	if t.Done() {
		status = m.st.done.Render("✅ Concluída")
	}
	desc := "Sem descrição"
	if t.Description != nil && *t.Description != "" {
		desc = *t.Description
	}
	m.printf("ID: %d | %s | %s\n", t.ID, t.Title, status)
	m.printf("Descrição: %s\n", desc)
	m.printf("%s\n", separator)
}

// report prints a failed request. An unreachable server gets its own
// warning, distinct from errors the server answered with.
func (m *Menu) report(err error, fallback string) {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrServerUnreachable):
		m.printf("%s\n", m.st.warn.Render("⚠️ Servidor está desligado ou inacessível. Tente novamente mais tarde"))
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		m.printf("%s\n", m.st.failure.Render("Tarefa não encontrada."))
	case errors.As(err, &apiErr) && apiErr.Message != "":
		m.printf("%s\n", m.st.failure.Render(fallback+" "+apiErr.Message))
	default:
		m.printf("%s\n", m.st.failure.Render(fallback))
	}
}

func (m *Menu) promptID() (int64, bool) {
	raw, ok := m.prompt("Digite o ID da tarefa: ")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.printf("%s\n", m.st.failure.Render("ID inválido."))
		return 0, false
	}
	return id, true
}

func (m *Menu) prompt(label string) (string, bool) {
	m.printf("%s", label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}
