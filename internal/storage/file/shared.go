package file

import (
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	utils "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

type Filer interface {
	ReadPage(pageId utils.PageID) (*page.Page, error)
	WritePage(p *page.Page) error
}
