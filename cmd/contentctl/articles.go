package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var frontMatterDelimiter = []byte("---")

type frontMatter struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
	Image string `yaml:"image"`
}

// parseArticle reads an optional YAML front matter block fenced by "---"
// lines. Without one the whole file is the content.
func parseArticle(md []byte) (frontMatter, []byte, error) {
	var fm frontMatter

	md = bytes.ReplaceAll(md, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(md, "\n \t")
	if !bytes.HasPrefix(trimmed, frontMatterDelimiter) {
		return fm, md, nil
	}

	rest := trimmed[len(frontMatterDelimiter):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelimiter...))
	if end == -1 {
		return fm, nil, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, nil, fmt.Errorf("invalid front matter: %w", err)
	}
	body := rest[end+1+len(frontMatterDelimiter):]
	return fm, bytes.TrimLeft(body, "\n"), nil
}

// loadArticles turns every .md file in dir into an article.
func loadArticles(dir string) ([]model.Article, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var articles []model.Article
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		fm, body, err := parseArticle(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}

		title := fm.Title
		if title == "" {
			title = strings.TrimSuffix(e.Name(), ".md")
		}
		date := fm.Date
		if date == "" {
			if info, err := e.Info(); err == nil {
				date = info.ModTime().UTC().Format("2006-01-02")
			}
		}
		articles = append(articles, model.Article{
			Title:   title,
			Date:    date,
			Image:   fm.Image,
			Content: string(body),
		})
	}
	return articles, nil
}

func newArticlesCmd(viperOf func() *viper.Viper) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "articles <dir>",
		Short: "Add every markdown file in a directory as an article",
		Long: `Articles reads the .md files in dir. A leading YAML block between
"---" lines may set title, date and image. The file name is the title
otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := loadArticles(args[0])
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				return fmt.Errorf("no markdown files in %s", args[0])
			}

			store, closeFn, err := openStore(cmd.Context(), viperOf())
			if err != nil {
				return err
			}
			defer closeFn()

			snap, err := store.PullAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			if replace {
				snap.Articles = articles
			} else {
				snap.Articles = append(snap.Articles, articles...)
			}
			if err := store.PushAll(cmd.Context(), snap); err != nil {
				return fmt.Errorf("push: %w", err)
			}

			for _, a := range articles {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", a.Title)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the stored articles instead of appending")
	return cmd
}
