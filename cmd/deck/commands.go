package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	"github.com/tendant/simple-deck/pkg/simpledeck/gateway"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored presentations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAppFromFlags(cmd)
			if err != nil {
				return err
			}
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}
			if err := catalog.Refresh(cmd.Context()); err != nil {
				return err
			}

			docs := catalog.Documents()
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No files uploaded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, color.New(color.Bold).Sprint("ID\tNAME\tSIZE\tUPLOADED"))
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					d.ID, d.OriginalName, simpledeck.FormatSize(d.SizeBytes),
					d.UploadedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

// NewUploadCommand creates the upload command
func NewUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a presentation",
		Long:  `Upload a .ppt or .pptx file to the document service.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			if !simpledeck.IsPresentation(filePath) {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("Warning: %s does not look like a PowerPoint file", filepath.Base(filePath)))
			}

			var opts []gateway.Option
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				errOut := cmd.ErrOrStderr()
				opts = append(opts, gateway.WithProgress(func(n int64) {
					fmt.Fprintf(errOut, "\rUploaded %s", simpledeck.FormatSize(n))
				}))
			}

			a, err := newAppFromFlags(cmd, opts...)
			if err != nil {
				return err
			}
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}

			res, err := catalog.Upload(cmd.Context(), filepath.Base(filePath), f)
			if a.verbose {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.GreenString(res.Message))
			if res.Document != nil {
				fmt.Fprintf(out, "ID: %s\n", res.Document.ID)
			}
			if err != nil {
				// Upload succeeded but the list could not be reloaded
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("Warning: %s", simpledeck.ReasonOf(err)))
			}
			return nil
		},
	}
}

// NewDownloadCommand creates the download command
func NewDownloadCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			a, err := newAppFromFlags(cmd)
			if err != nil {
				return err
			}

			rc, name, err := a.gateway.Download(cmd.Context(), id)
			if err != nil {
				return &simpledeck.Error{Kind: simpledeck.FetchDocumentFailed, DocumentID: id, Err: err}
			}
			defer rc.Close()

			path := outputPath
			if path == "" {
				path = name
			}
			if path == "" {
				path = id
			}

			n, err := writeFile(path, rc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, simpledeck.FormatSize(n))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: the stored file name)")
	return cmd
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			a, err := newAppFromFlags(cmd)
			if err != nil {
				return err
			}

			var confirmer simpledeck.Confirmer = newTerminalConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirmer = simpledeck.AlwaysConfirm{}
			}
			catalog, err := a.newCatalog(simpledeck.WithConfirmer(confirmer))
			if err != nil {
				return err
			}
			// Load the list so the prompt can name the file
			if err := catalog.Refresh(cmd.Context()); err != nil {
				a.logger.Warn("Failed to load files", "error", err)
			}

			deleted, err := catalog.RequestDelete(cmd.Context(), id)
			out := cmd.OutOrStdout()
			if !deleted {
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}

			fmt.Fprintln(out, color.GreenString("File deleted successfully"))
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("Warning: %s", simpledeck.ReasonOf(err)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// NewPreviewCommand creates the preview command
func NewPreviewCommand() *cobra.Command {
	var mode string
	var savePath string
	var open bool

	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Preview a presentation",
		Long: `Preview a presentation with one of the viewing methods:

  direct    retrieve the file (use --save to keep a copy)
  embedded  build the embedded viewer address
  office    open the file in Office Online
  google    open the file in Google Docs Viewer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			a, err := newAppFromFlags(cmd)
			if err != nil {
				return err
			}
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}
			doc, err := a.lookup(cmd, catalog, args[0])
			if err != nil {
				return err
			}

			blobs, err := a.cfg.BuildBlobStore(ctx)
			if err != nil {
				return err
			}

			var opener simpledeck.Opener = printOpener{out: out}
			if open {
				opener = browserOpener{}
			}
			sessionOpts := []simpledeck.SessionOption{
				simpledeck.WithViewers(a.cfg.Viewers()),
				simpledeck.WithOpener(opener),
				simpledeck.WithSessionLogger(a.logger),
			}
			if a.verbose {
				sessionOpts = append(sessionOpts, simpledeck.WithSessionHooks(traceHooks(cmd.ErrOrStderr())))
			}
			session, err := simpledeck.NewSession(a.gateway, blobs, sessionOpts...)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			if err := session.Select(ctx, doc); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%s)\n", color.New(color.Bold).Sprint(doc.OriginalName), simpledeck.FormatSize(doc.SizeBytes))

			switch strings.ToLower(mode) {
			case "direct":
				return previewDirect(cmd, session, savePath)

			case "embedded":
				frame, err := session.ChooseEmbeddedViewer(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, frame.URL)
				if open {
					if err := opener.Open(ctx, frame.URL); err != nil {
						return fmt.Errorf("failed to open viewer: %w", err)
					}
				}
				session.ViewerLoaded(ctx, frame.Ticket)
				return nil

			case string(simpledeck.ViewerOffice), string(simpledeck.ViewerGoogle):
				_, err := session.ChooseExternalService(ctx, simpledeck.ViewerKind(strings.ToLower(mode)))
				return err

			default:
				return fmt.Errorf("unknown preview mode %q (use direct, embedded, office or google)", mode)
			}
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "direct", "viewing method: direct, embedded, office or google")
	cmd.Flags().StringVar(&savePath, "save", "", "with --mode direct, save the retrieved file to this path or directory")
	cmd.Flags().BoolVar(&open, "open", false, "open viewer URLs in the browser")
	return cmd
}

func previewDirect(cmd *cobra.Command, session *simpledeck.Session, savePath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := session.ChooseDirectFetch(ctx); err != nil {
		var opErr *simpledeck.Error
		if errors.As(err, &opErr) {
			fmt.Fprintln(out, color.RedString("Failed to load preview: %s", opErr.Reason()))
			fmt.Fprintln(out, "Try again or choose another preview method with --mode.")
		}
		return err
	}

	if savePath != "" {
		path := savePath
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, filepath.Base(session.Snapshot().Document.OriginalName))
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := session.SaveBlob(ctx, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(out, "Saved %s\n", path)
		return nil
	}

	if p, err := session.BlobPath(); err == nil {
		fmt.Fprintf(out, "Retrieved to %s\n", p)
		return nil
	}
	fmt.Fprintln(out, color.GreenString("Retrieved. Use --save to keep a copy."))
	return nil
}

// NewViewerURLCommand creates the viewer-url command
func NewViewerURLCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "viewer-url <id>",
		Short: "Print the viewer service URL of a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAppFromFlags(cmd)
			if err != nil {
				return err
			}
			docURL, err := a.gateway.DownloadURL(args[0])
			if err != nil {
				return err
			}

			viewers := a.cfg.Viewers()
			var u string
			if k := simpledeck.ViewerKind(strings.ToLower(kind)); k == simpledeck.ViewerEmbedded {
				u, err = viewers.EmbeddedURL(docURL)
			} else {
				u, err = viewers.ExternalURL(k, docURL)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(simpledeck.ViewerOffice), "viewer: embedded, office or google")
	return cmd
}

// traceHooks prints session transitions and resource changes
func traceHooks(w io.Writer) *simpledeck.Hooks {
	dim := color.New(color.Faint)
	return &simpledeck.Hooks{
		OnTransition: []simpledeck.TransitionHook{
			func(hctx *simpledeck.HookContext, t simpledeck.Transition) {
				dim.Fprintf(w, "session: %s -> %s (%s)\n", t.From, t.To, t.Event)
			},
		},
		OnAcquire: []simpledeck.ResourceHook{
			func(hctx *simpledeck.HookContext, kind simpledeck.ResourceKind, ref string, doc simpledeck.Document) {
				dim.Fprintf(w, "session: acquired %s %s\n", kind, ref)
			},
		},
		OnRelease: []simpledeck.ResourceHook{
			func(hctx *simpledeck.HookContext, kind simpledeck.ResourceKind, ref string, doc simpledeck.Document) {
				dim.Fprintf(w, "session: released %s %s\n", kind, ref)
			},
		},
	}
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	return n, f.Close()
}
