package source

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultFTPPort    = "21"
	defaultFTPTimeout = 30 * time.Second
)

// FTPOptions configures FTP downloads.
type FTPOptions struct {
	Timeout time.Duration
}

// FTPFetcher pulls code files from line-side FTP drops.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher applies a 30s timeout when none is set.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFTPTimeout
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// location. Without user info in the URL the
// drop is read anonymously.
type ftpTarget struct {
	addr string
	path string
	user string
	pass string
}

func parseFTPURL(raw string) (ftpTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "source: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("source: %q is not an ftp:// url", raw)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.Errorf("source: %q names no file", raw)
	}

	t := ftpTarget{addr: u.Host, path: u.Path, user: "anonymous", pass: "anonymous@"}
	if _, _, err := net.SplitHostPort(t.addr); err != nil {
		t.addr = net.JoinHostPort(u.Host, defaultFTPPort)
	}
	if u.User != nil && u.User.Username() != "" {
		t.user = u.User.Username()
		t.pass, _ = u.User.Password()
	}
	return t, nil
}

// ftpFile streams one RETR and quits the session on Close.
type ftpFile struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (f *ftpFile) Close() error {
	err := f.Response.Close()
	if qerr := f.conn.Quit(); err == nil {
		err = qerr
	}
	return eris.Wrap(err, "source: close ftp session")
}

// Download opens a session and starts retrieving the file named by ftpURL.
// Closing the reader ends the session.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("source: ftp retrieve", zap.String("addr", t.addr), zap.String("path", t.path))

	conn, err := ftp.Dial(t.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "source: ftp dial %s", t.addr)
	}
	if err := conn.Login(t.user, t.pass); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrapf(err, "source: ftp login as %s", t.user)
	}
	resp, err := conn.Retr(t.path)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrapf(err, "source: ftp retr %s", t.path)
	}
	return &ftpFile{Response: resp, conn: conn}, nil
}

// DownloadToFile copies the remote file to dst and returns the byte count.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL, dst string) (int64, error) {
	rc, err := f.Download(ctx, ftpURL)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return 0, eris.Wrapf(err, "source: create %s", dst)
	}
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, eris.Wrapf(err, "source: write %s", dst)
}
