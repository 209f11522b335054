package upload

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// storedNamePattern はストレージ名として受け入れる形式。
// Sanitizerが採番した名前はこの形式を必ず満たす。
// パス区切り文字・".."・先頭ドットは構造上マッチしない。
var storedNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store はクラス別ディレクトリへのファイル保存・取得・削除を提供する。
// パスの組み立てはこの型だけが行い、検証済みのストレージ名以外は
// 構造上受け付けない。クライアント由来の生文字列を渡してはならない。
type Store struct {
	baseDir string
}

// NewStore はStoreを生成し、クラス別ディレクトリを作成する。
func NewStore(baseDir string) (*Store, error) {
	for _, class := range []Class{ClassProfilePicture, ClassLogo, ClassResume} {
		dir := filepath.Join(baseDir, class.Dir())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// ErrInvalidStoredName は不正なストレージ名を表す。
var ErrInvalidStoredName = fmt.Errorf("upload: invalid stored name")

// Path は検証済みストレージ名から保存先の絶対パスを組み立てる。
// 形式を満たさない名前にはErrInvalidStoredNameを返す。
func (s *Store) Path(class Class, storedName string) (string, error) {
	if !storedNamePattern.MatchString(storedName) {
		return "", ErrInvalidStoredName
	}
	return filepath.Join(s.baseDir, class.Dir(), storedName), nil
}

// Save はストリームを保存する。既存ファイルへの上書きは拒否する
// （ストレージ名はタイムスタンプ付きで採番されるため衝突は起こらない前提）。
func (s *Store) Save(class Class, storedName string, r io.Reader) error {
	path, err := s.Path(class, storedName)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		// 書き込みに失敗した中途半端なファイルは残さない
		os.Remove(path)
		return fmt.Errorf("failed to write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close upload file: %w", err)
	}
	return nil
}

// Delete はファイルを削除する。存在しない場合はエラーにしない。
func (s *Store) Delete(class Class, storedName string) error {
	path, err := s.Path(class, storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload file: %w", err)
	}
	return nil
}

// Replace は旧ファイルを削除する。プロフィール画像・ロゴの差し替えで、
// 新ファイル保存前に呼ぶ。削除の失敗はログに残すだけで新規保存は妨げない。
func (s *Store) Replace(class Class, oldStoredName string) {
	if oldStoredName == "" {
		return
	}
	if err := s.Delete(class, oldStoredName); err != nil {
		slog.Warn("failed to delete replaced upload file",
			slog.String("class", string(class)),
			slog.String("stored_name", oldStoredName),
			slog.String("error", err.Error()),
		)
	}
}

// Exists はファイルの存在を確認する。
func (s *Store) Exists(class Class, storedName string) bool {
	path, err := s.Path(class, storedName)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
