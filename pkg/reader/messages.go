package reader

// User-facing copy. The product UI is Chinese; original-language slots
// carry English.
const (
	msgNoContentCN    = "暂无文章内容"
	msgNoContentID    = "No content available"
	msgLoadErrorCN    = "无法加载文章内容: "
	msgLoadErrorID    = "Error loading content"
	msgArticleFailed  = "获取文章详情失败"
	msgNewsFailed     = "获取新闻失败"
	msgNewsFailedPfx  = "获取新闻失败: "
	msgTimeout        = "请求超时，请检查网络连接或稍后重试"
	msgArticleTimeout = "请求超时"

	placeholderMeaning = "示例翻译：这是一个示例单词的中文释义"
	placeholderRoot    = "示例词根"
	placeholderPOS     = "名词"
	placeholderVibe    = "正式用语，常用于新闻报道"
	placeholderContext = "这是包含该单词的完整原句示例"
)
