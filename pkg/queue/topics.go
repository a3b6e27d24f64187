package queue

// 主题命名规范：pv.<域>.<动作>，尽量稳定且向后兼容.

const (
	// 文件审核领域.
	TopicFileUploaded = "pv.file.uploaded" // 文件已写入对象存储并登记为 pending
	TopicFileApproved = "pv.file.approved" // 文件审核通过
	TopicFileRejected = "pv.file.rejected" // pending 文件被驳回，记录保留为 rejected
	TopicFileDeleted  = "pv.file.deleted"  // 已通过文件被下架，记录删除
	TopicFileMoved    = "pv.file.moved"    // 已通过文件变更类型

	// 巡检领域.
	TopicSweepOrphanRemoved = "pv.sweep.orphan_removed" // 清理了无记录的对象
)

// FileTopics 返回全部文件事件主题，审计订阅者使用.
func FileTopics() []string {
	return []string{
		TopicFileUploaded,
		TopicFileApproved,
		TopicFileRejected,
		TopicFileDeleted,
		TopicFileMoved,
	}
}

// AllTopics 返回全部主题.
func AllTopics() []string {
	return append(FileTopics(), TopicSweepOrphanRemoved)
}
