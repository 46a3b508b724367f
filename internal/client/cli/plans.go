package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Plans lists plans from the server using the stored access token. Extra
// arguments are joined into the query string, e.g. "plans status=in_review".
func (a *App) Plans(ctx context.Context, args []string) error {
	token, err := a.sessions.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(a.out, "Inicie sesión primero ('login')")
		return nil
	}

	query := strings.Join(args, "&")
	items, total, err := a.api.ListPlans(ctx, token, query)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CÓDIGO\tTÍTULO\tZONA\tESTADO\tREV")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.Code, p.Title, p.Zone, p.Status, p.Revision)
	}
	w.Flush()
	fmt.Fprintf(a.out, "%d plano(s)\n", total)
	return nil
}
