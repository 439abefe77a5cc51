package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"finalfeliz/config"
	"finalfeliz/internal/app"
	catalogctl "finalfeliz/internal/controller/catalog"
	"finalfeliz/internal/pkg/logger"
)

// rootCmd sobe o núcleo sem interface: migra, semeia, restaura a sessão e
// mantém os repositórios reativos vivos até SIGINT/SIGTERM.
var rootCmd = &cobra.Command{
	Use:   "finalfeliz",
	Short: "Núcleo reativo da loja Final Feliz",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Start(cmd.Context()); err != nil {
			return err
		}

		catalog := a.CatalogController(cmd.Context())
		defer catalog.Close()
		if st, ok := firstLoad(cmd.Context(), catalog); ok {
			log.Info("Catálogo disponível.", map[string]interface{}{"products": len(st.All)})
			if st.Banner != nil {
				log.Warn("Catálogo com erro de carga.", map[string]interface{}{"message": st.Banner.Message})
			}
		}

		<-cmd.Context().Done()
		log.Info("Sinal de encerramento recebido. Desligando...", nil)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insere o catálogo inicial se a tabela de produtos estiver vazia",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		seeded, err := a.Products.EnsureSeeded(cmd.Context())
		if err != nil {
			return err
		}
		if seeded {
			fmt.Println("catálogo inicial inserido")
		} else {
			fmt.Println("catálogo já possui produtos")
		}
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Lista o catálogo ordenado por nome",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		a.Products.Refresh(cmd.Context())
		cat := a.Products.Catalog()
		if cat.Err != nil {
			return cat.Err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNOMBRE\tMATERIAL\tPRECIO (CLP)")
		for _, p := range cat.Products {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", p.ID, p.Name, p.Material, p.PriceCLP)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(catalogCmd)
}

func boot(ctx context.Context) (*app.App, logger.Logger, error) {
	cfg := config.LoadConfig() // Carrega as configurações (URLs, Timeouts, etc.)
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

// firstLoad espera a primeira carga do catálogo, com limite de 10s.
func firstLoad(ctx context.Context, c *catalogctl.Controller) (catalogctl.State, bool) {
	sub := c.Subscribe()
	defer sub.Cancel()

	timeout := time.NewTimer(10 * time.Second)
	defer timeout.Stop()
	for {
		select {
		case st, ok := <-sub.C():
			if !ok {
				return catalogctl.State{}, false
			}
			if !st.Loading {
				return st, true
			}
		case <-timeout.C:
			return catalogctl.State{}, false
		case <-ctx.Done():
			return catalogctl.State{}, false
		}
	}
}

func main() {
	// CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// As variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// Graceful shutdown: o contexto é cancelado no primeiro sinal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "finalfeliz: %v\n", err)
		stop()
		os.Exit(1)
	}
}
